// Package patchengine implements the resolve-verify-apply runner: the
// single control structure every patch entry point uses, so that
// verification always sees the same canonical object apply will consume.
// Grounded on original_source/src/patch/engine.rs's
// run_resolve_verify_apply closure pipeline.
package patchengine

// RunResolveVerifyApply executes resolve, then verify, then apply, each a
// single closure. An error at any stage short-circuits the rest.
func RunResolveVerifyApply[Resolved, Verified, Output any](
	resolve func() (Resolved, error),
	verify func(Resolved) (Verified, error),
	apply func(Verified) (Output, error),
) (Output, error) {
	var zero Output

	resolved, err := resolve()
	if err != nil {
		return zero, err
	}

	verified, err := verify(resolved)
	if err != nil {
		return zero, err
	}

	output, err := apply(verified)
	if err != nil {
		return zero, err
	}
	return output, nil
}
