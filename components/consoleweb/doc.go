// Package consoleweb serves console screens as server-rendered HTML pages.
//
// Every mutating action is a POST that redirects back to the screen
// (post-redirect-get); notices raised by the action are drained and shown on
// the next render. Screens are shared by all visitors of the handler, so the
// package suits demos and single-operator back offices.
package consoleweb
