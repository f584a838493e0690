package audio

import (
	"errors"
	"fmt"

	"github.com/bogem/id3v2"
	"github.com/handiism/audio-normalizer/internal/model"
)

// ErrNoCoverArt is returned when a file carries no usable attached picture.
// It is an expected outcome for untagged files, not a failure.
var ErrNoCoverArt = errors.New("no cover art")

// Tagger reads and writes cover art stored in ID3 attached picture (APIC)
// frames.
//
// Example:
//
//	tagger := NewTagger()
//
//	cover, err := tagger.ExtractCover("/music/song.mp3")
//	if errors.Is(err, ErrNoCoverArt) {
//	    // carry on without a cover
//	}
//
//	err = tagger.EmbedCover("/music/normalized/song.mp3", cover)
type Tagger struct{}

// NewTagger creates a new Tagger.
func NewTagger() *Tagger {
	return &Tagger{}
}

// ExtractCover returns the front cover of the file at path, or the first
// attached picture when no front cover is marked.
//
// The returned bytes are an independent copy. ErrNoCoverArt is returned
// (possibly wrapped with a reason) when the file has no ID3 header, no
// picture frame, or a tag that cannot be parsed.
func (t *Tagger) ExtractCover(path string) (*model.CoverArt, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true, ParseFrames: []string{"Attached picture"}})
	if err != nil {
		return nil, fmt.Errorf("%w: unreadable ID3 tag: %v", ErrNoCoverArt, err)
	}
	defer tag.Close()

	frames := tag.GetFrames(tag.CommonID("Attached picture"))
	if len(frames) == 0 {
		if tag.Count() == 0 {
			return nil, fmt.Errorf("%w: no ID3 tag found", ErrNoCoverArt)
		}
		return nil, fmt.Errorf("%w: no attached picture", ErrNoCoverArt)
	}

	var chosen *id3v2.PictureFrame
	for _, f := range frames {
		pic, ok := f.(id3v2.PictureFrame)
		if !ok || len(pic.Picture) == 0 {
			continue
		}
		if chosen == nil || (pic.PictureType == id3v2.PTFrontCover && chosen.PictureType != id3v2.PTFrontCover) {
			p := pic
			chosen = &p
		}
	}
	if chosen == nil {
		return nil, fmt.Errorf("%w: attached picture is empty", ErrNoCoverArt)
	}

	cover := &model.CoverArt{
		MimeType:    chosen.MimeType,
		Description: chosen.Description,
		PictureType: chosen.PictureType,
		Data:        chosen.Picture,
	}
	return cover.Clone(), nil
}

// EmbedCover replaces any attached pictures in the file at path with cover,
// stored as the front cover.
//
// The file does not need an existing tag; one is created in front of the
// audio data.
func (t *Tagger) EmbedCover(path string, cover *model.CoverArt) error {
	if cover == nil || len(cover.Data) == 0 {
		return errors.New("embed cover: empty picture")
	}

	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("open tag: %w", err)
	}
	defer tag.Close()

	updateArtwork(tag, cover)

	if err := tag.Save(); err != nil {
		return fmt.Errorf("save tag: %w", err)
	}
	return nil
}

// updateArtwork embeds cover art as an attached picture frame.
func updateArtwork(tag *id3v2.Tag, cover *model.CoverArt) {
	tag.DeleteFrames(tag.CommonID("Attached picture"))

	mime := cover.MimeType
	if mime == "" {
		mime = "image/jpeg"
	}
	description := cover.Description
	if description == "" {
		description = "Cover"
	}

	tag.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    id3v2.EncodingUTF8,
		MimeType:    mime,
		PictureType: id3v2.PTFrontCover,
		Description: description,
		Picture:     cover.Data,
	})
}
