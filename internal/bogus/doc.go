// Package bogus computes the a_bogus request signature by calling an
// external JavaScript implementation.
//
// The signing algorithm is not part of this module. A Signer reads the
// script (a_bogus.js by default), loads it into one or more embedded
// JavaScript engines and calls its exported function (generate_a_bogus by
// default) with two arguments: the raw query component of the request URL
// and the user agent that will send the request. Whatever string the
// function returns is the signature.
//
// Typical use:
//
//	signer, err := bogus.NewSigner(bogus.WithScriptPath("a_bogus.js"))
//	if err != nil {
//	    return err
//	}
//	signedURL, sig, err := signer.SignURL(ctx, apiURL, userAgent)
package bogus
