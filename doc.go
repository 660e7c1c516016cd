// Package main provides the entry point for the BandSync coordination server.
// It runs a web service using the Fiber framework that backs the BandSync
// mobile clients: authentication, band/group membership, calendar events,
// setlists, chat, finances and the admin surface. The application uses gorm
// for data persistence and an in-process hub for live snapshot delivery.
package main
