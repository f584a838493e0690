// Package audio provides audio file metadata services: cover art carried
// in ID3 tags, and playlists of normalized files.
//
// # Cover Art
//
// Use the Tagger to move cover art from a source file to its normalized
// copy:
//
//	tagger := audio.NewTagger()
//	cover, err := tagger.ExtractCover(src)
//	if err == nil {
//	    err = tagger.EmbedCover(dst, cover)
//	}
//
// A file without an ID3 header or without an attached picture yields
// ErrNoCoverArt, which callers treat as "no cover" rather than a failure.
//
// # Playlist Generation
//
// Generate a playlist of the files a batch run wrote:
//
//	creator := audio.NewPlaylistCreator(audio.FormatM3U, true) // extended M3U
//	content := creator.CreatePlaylist("Album", outcome.Results)
//
// Supported formats:
//   - M3U (with optional extended info)
//   - PLS
//   - WPL (Windows Media Player)
//   - ZPL (Zune Media Player)
package audio
