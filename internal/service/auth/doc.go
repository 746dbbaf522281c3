// Package auth owns the client-side session.
//
// Store is the single source of truth for the session token: it sanitizes
// every value it accepts, persists it to durable storage and exposes a
// derived authenticated flag that subscribers can watch. Invalid input
// clears the session instead of failing.
//
// BrowserLoginService obtains a token interactively by opening the sign-in
// page in a real browser via go-rod and capturing the session cookie the
// application sets once the user has signed in.
package auth
