package stats

import "fmt"

// UnknownChampionError means a provider referenced a champion the roster does
// not know, usually because the roster cache is older than the provider data.
type UnknownChampionError struct {
	Provider   string
	ChampionID int
}

func (e *UnknownChampionError) Error() string {
	if e == nil {
		return "unknown champion"
	}
	return fmt.Sprintf("%s returned champion %d which is not in the roster; refresh the roster", e.Provider, e.ChampionID)
}

// MalformedResponseError reports a provider response missing expected fields
// or carrying impossible values.
type MalformedResponseError struct {
	Provider string
	Detail   string
	Err      error
}

func (e *MalformedResponseError) Error() string {
	if e == nil {
		return "malformed response"
	}
	if e.Err != nil {
		return fmt.Sprintf("malformed %s response: %s: %v", e.Provider, e.Detail, e.Err)
	}
	return fmt.Sprintf("malformed %s response: %s", e.Provider, e.Detail)
}

func (e *MalformedResponseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// InvalidFormatError reports an unsupported selector. Kind is "format" for
// export tags and "provider" for provider names.
type InvalidFormatError struct {
	Kind  string
	Value string
	Valid []string
}

func (e *InvalidFormatError) Error() string {
	if e == nil {
		return "invalid format"
	}
	if len(e.Valid) == 0 {
		return fmt.Sprintf("invalid %s: %q", e.Kind, e.Value)
	}
	return fmt.Sprintf("invalid %s: %q (valid: %s)", e.Kind, e.Value, JoinNames(e.Valid))
}
