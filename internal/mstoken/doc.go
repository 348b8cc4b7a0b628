// Package mstoken generates the random ms_token value sent alongside signed
// requests.
//
// An ms_token has no server-verifiable structure: it is a string of
// DefaultLength characters drawn uniformly, with replacement, from the 62
// character Alphabet. The default source of randomness is crypto/rand.
package mstoken
