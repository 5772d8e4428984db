package collection

import (
	"bufio"

	"github.com/festivald/festivald/internal/persist"
)

// diskDecoders maps every on-disk major version this build knows how to
// read to the function that upgrades it into the current in-memory shape.
var diskDecoders = map[byte]persist.Decoder{
	1: DecodeDiskV1,
}

// Save writes c to path using internal/persist's framed-and-atomic format,
// tracking flag for the duration of the write so callers (the Kernel's
// exit sequencing) can wait for it to clear.
func Save(path string, c *Collection, flag *persist.SavingFlag) error {
	return persist.WriteFramedTracked(path, CurrentDiskVersion, func(w *bufio.Writer) error {
		return c.EncodeDisk(w)
	}, flag)
}

// Load reads and decodes a Collection previously written by Save,
// migrating older on-disk versions through diskDecoders as needed.
func Load(path string) (*Collection, error) {
	version, body, err := persist.ReadFramed(path)
	if err != nil {
		return nil, err
	}
	v, err := persist.DecodeVersioned(version, body, diskDecoders)
	if err != nil {
		return nil, err
	}
	return v.(*Collection), nil
}
