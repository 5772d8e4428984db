package collection

import (
	"bytes"
	"encoding/gob"
	"io"
	"time"
)

// CurrentDiskVersion is the major version this build writes. internal/persist
// frames every binary file with this value; a version mismatch on read
// selects an older decode path via diskDecoders (see store.go).
const CurrentDiskVersion byte = 1

// diskCollection and diskAlbum are the gob-visible shapes written to disk.
// They differ from Collection/Album only in Art, which must never persist
// in its Decoded form (see art.go).
type diskCollection struct {
	Artists   []Artist
	Albums    []diskAlbum
	Songs     []Song
	Orderings Orderings
	CreatedAt time.Time
}

type diskAlbum struct {
	Title      string
	TitleLower string
	Artist     ArtistKey
	Release    *time.Time
	Runtime    time.Duration
	SongCount  int
	Discs      int
	Songs      []SongKey
	Dir        string
	Genre      string
	Art        diskArt
}

// EncodeDisk gob-encodes c in its current on-disk shape. c's albums must
// already have had their art passed through Undecode (the CCD Clone
// phase's job); EncodeDisk returns an error if any album still holds
// Decoded art.
func (c *Collection) EncodeDisk(w io.Writer) error {
	d := diskCollection{
		Artists:   c.Artists,
		Songs:     c.Songs,
		Orderings: c.Orderings,
		CreatedAt: c.CreatedAt,
	}
	d.Albums = make([]diskAlbum, len(c.Albums))
	for i, a := range c.Albums {
		da, err := a.Art.ToDisk()
		if err != nil {
			return err
		}
		d.Albums[i] = diskAlbum{
			Title: a.Title, TitleLower: a.TitleLower, Artist: a.Artist,
			Release: a.Release, Runtime: a.Runtime, SongCount: a.SongCount,
			Discs: a.Discs, Songs: a.Songs, Dir: a.Dir, Genre: a.Genre, Art: da,
		}
	}
	return gob.NewEncoder(w).Encode(d)
}

// DecodeDiskV1 decodes the version-1 on-disk shape. It is registered with
// internal/persist as the Decoder for version 1; future format changes add
// DecodeDiskV2 etc. alongside it rather than replacing it, so old files
// keep loading.
func DecodeDiskV1(body []byte) (interface{}, error) {
	return decodeDisk(body)
}

func decodeDisk(body []byte) (*Collection, error) {
	var d diskCollection
	if err := gob.NewDecoder(bytes.NewReader(body)).Decode(&d); err != nil {
		return nil, err
	}
	c := &Collection{
		Artists:   d.Artists,
		Songs:     d.Songs,
		Orderings: d.Orderings,
		CreatedAt: d.CreatedAt,
	}
	c.Albums = make([]Album, len(d.Albums))
	for i, da := range d.Albums {
		c.Albums[i] = Album{
			Title: da.Title, TitleLower: da.TitleLower, Artist: da.Artist,
			Release: da.Release, Runtime: da.Runtime, SongCount: da.SongCount,
			Discs: da.Discs, Songs: da.Songs, Dir: da.Dir, Genre: da.Genre,
			Art: FromDisk(da.Art),
		}
	}
	return c, nil
}
