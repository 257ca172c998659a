package imageload

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"net/http"

	"github.com/disintegration/gift"
	"github.com/drummonds/photoprism-go-api/api"
)

// PhotoPrismScheme prefixes references to photos held on a PhotoPrism
// server, "photoprism:<photo uid>".
const PhotoPrismScheme = "photoprism:"

// NewPhotoPrismClient connects to the PhotoPrism server at domain using an
// app password or access token.
func NewPhotoPrismClient(domain, token string) (*api.ClientWithResponses, error) {
	provider := api.NewXAuthProvider(token)
	return api.NewClientWithResponses(domain, api.WithRequestEditorFn(provider.Intercept))
}

func firstJpeg(files []api.EntityFile) (api.EntityFile, bool) {
	for _, file := range files {
		if file.Mime != nil && *file.Mime == "image/jpeg" && file.Hash != nil {
			return file, true
		}
	}
	return api.EntityFile{}, false
}

// photoPrism downloads the original JPEG of a photo and turns it upright.
func (l *Loader) photoPrism(ctx context.Context, uid string) (image.Image, error) {
	if l.prism == nil {
		return nil, errors.New("no PhotoPrism server configured")
	}
	photo, err := l.prism.GetPhotoWithResponse(ctx, uid)
	if err != nil {
		return nil, err
	}
	if photo.JSON200 == nil || photo.JSON200.Files == nil {
		return nil, fmt.Errorf("photo %s: status %d", uid, photo.HTTPResponse.StatusCode)
	}
	file, ok := firstJpeg(*photo.JSON200.Files)
	if !ok {
		return nil, fmt.Errorf("photo %s has no jpeg file", uid)
	}
	log.Printf("imageload: photoprism download %s", uid)
	dl, err := l.prism.GetDownloadWithResponse(ctx, *file.Hash)
	if err != nil {
		return nil, err
	}
	if dl.HTTPResponse.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading %s: status %d", uid, dl.HTTPResponse.StatusCode)
	}
	img, err := Decode(dl.Body)
	if err != nil {
		return nil, err
	}
	orientation := 1
	if file.Orientation != nil {
		orientation = *file.Orientation
	}
	return Orient(img, orientation), nil
}

// Orient applies an EXIF orientation (1-8) so the picture is upright.
func Orient(img image.Image, orientation int) image.Image {
	g := gift.New()
	switch orientation {
	case 2:
		g.Add(gift.FlipHorizontal())
	case 3:
		g.Add(gift.Rotate180())
	case 4:
		g.Add(gift.FlipVertical())
	case 5:
		g.Add(gift.Rotate270())
		g.Add(gift.FlipHorizontal())
	case 6:
		g.Add(gift.Rotate270())
	case 7:
		g.Add(gift.Rotate90())
		g.Add(gift.FlipHorizontal())
	case 8:
		g.Add(gift.Rotate90())
	default:
		return img
	}
	oriented := image.NewRGBA(g.Bounds(img.Bounds()))
	g.Draw(oriented, img)
	return oriented
}
