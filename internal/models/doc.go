// package models defines the data model for the track linkage service.
//
// The central entity is [Linkage], a persisted assertion that a local library
// track and/or rows from the Tidal and YouTube Music catalogs represent the
// same recording. Supporting types cover the local library ([LocalTrack]),
// per-provider catalog rows ([TidalTrack], [YouTubeTrack]) and the transient
// shapes exchanged with the resolution pipeline ([Metadata], [Match],
// [ResolvedTrack]).
package models
