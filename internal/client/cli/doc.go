// Package cli implements authctl, a command-line client for the keuthlie
// HTTP API plus the key generation utility used to provision a server.
//
// Commands
//
//	keygen    write an RSA keypair (PKCS#8 private, PKIX public) as PEM
//	register  create an identity
//	login     obtain a token for a service
//	verify    print the identity id a token belongs to
//	passwd    change the password; prints the replacement token
//	revoke    invalidate every token of an identity
//	logout    forget the saved token of the server
//
// login saves the token per server URL in a local SQLite file; verify, passwd
// and revoke fall back to it when no token argument is given.
//
// Passwords are always read from the terminal without echo.
package cli
