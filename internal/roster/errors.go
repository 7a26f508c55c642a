package roster

import "fmt"

// PatchResolutionError means no patch was supplied and the versions endpoint
// could not name one.
type PatchResolutionError struct {
	Err error
}

func (e *PatchResolutionError) Error() string {
	if e == nil || e.Err == nil {
		return "could not resolve the current patch"
	}
	return fmt.Sprintf("could not resolve the current patch: %v", e.Err)
}

func (e *PatchResolutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// AssetIntegrityError reports champion metadata that could not be turned into
// a one-to-one identifier to name mapping.
type AssetIntegrityError struct {
	Patch   string
	Entries int
	IDs     int
	Err     error
}

func (e *AssetIntegrityError) Error() string {
	if e == nil {
		return "champion metadata is inconsistent"
	}
	if e.Err != nil {
		return fmt.Sprintf("champion metadata for patch %q is inconsistent: %v", e.Patch, e.Err)
	}
	return fmt.Sprintf("champion metadata for patch %q is inconsistent: %d entries, %d distinct ids", e.Patch, e.Entries, e.IDs)
}

func (e *AssetIntegrityError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
