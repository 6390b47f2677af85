// Package matchers resolves a content type to the body matcher responsible
// for comparing expected and actual bodies of that type.
//
// Resolution order for Registry.Resolve:
//
//  1. An empty content type resolves to nothing.
//  2. A plugin catalogue entry that is not provided by core wins outright.
//  3. An override for the exact content type either names a matcher kind
//     ("json", "text", ...) or redirects to another content type, which is
//     resolved from step 1 again. Redirect cycles resolve to nothing.
//  4. The built-in table is scanned in declared order and the first pattern
//     that matches the whole content type wins.
//  5. Otherwise nothing; callers fall back to their own default comparison.
//
// Matchers are created from a static table of factories keyed by Kind.
// Resolution never fails: malformed overrides or catalogue entries degrade
// to "no matcher".
package matchers
