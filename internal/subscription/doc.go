// Package subscription fetches remote channel feeds, parses M3U and TXT
// playlists, and reconciles fetched channels with previously stored rows
// so per-URL health state survives a refresh.
package subscription
