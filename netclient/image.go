package netclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	"github.com/h2non/filetype"

	"github.com/kbukum/netclient/target"
)

var errNotImage = errors.New("payload is not an image")

// decodable lists the image formats registered above, by MIME type.
var decodable = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
}

// Image executes t and decodes the payload as a PNG, JPEG or GIF image.
// The payload is sniffed first, so other content fails without a decode
// attempt.
func Image(ctx context.Context, c *Client, t target.Target, opts ...CallOption) (image.Image, error) {
	var img image.Image
	_, err := c.run(ctx, t.Descriptor(), newCallOptions(opts), func(data []byte) error {
		if err := sniffImage(data); err != nil {
			return NewImageDecodeError(err)
		}
		decoded, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return NewImageDecodeError(err)
		}
		img = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return img, nil
}

func sniffImage(data []byte) error {
	if !filetype.IsImage(data) {
		return errNotImage
	}
	kind, err := filetype.Match(data)
	if err != nil {
		return err
	}
	if !decodable[kind.MIME.Value] {
		return fmt.Errorf("unsupported image type %s", kind.Extension)
	}
	return nil
}
