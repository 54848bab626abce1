// Package phone normalizes raw phone number input into canonical E.164 form.
//
// Normalization is pure and idempotent: feeding a normalized number back in
// returns the same string. National trunk prefixes for known countries are
// rewritten to their international form before validation.
package phone
