// Package telegramgw is a client for the Telegram Gateway verification API.
//
// The gateway delivers one-time passcodes to Telegram accounts and is the
// authority for whether a submitted code matches: verification is correlated
// through the request id returned by send calls. A debug implementation
// fabricates every response so callers can be exercised offline.
package telegramgw
