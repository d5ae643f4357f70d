// Package api contains the HTTP handlers for the portfolio backend: public
// content, translations, media and audio libraries, themes, feedback,
// analytics ingest, accessibility profiles, and the authenticated admin
// surface. Handlers share one Handler value carrying the datastore, session
// manager, relay, and analytics collaborators.
package api
