package factory

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/campuslostfound/lostfound/internal/config"
	"github.com/campuslostfound/lostfound/internal/imagestore"
)

// NewImages builds the photo uploader. The returned handler is non-nil only for the
// local disk store, which the HTTP server must serve itself.
func NewImages(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*imagestore.Uploader, http.Handler, error) {
	s, err := imagestore.New(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	var files http.Handler
	if ls, ok := s.(*imagestore.LocalStore); ok {
		files = ls.Handler()
	}
	log.Debug().Str("image_store", cfg.ImageStore).Msg("image store ready")
	return imagestore.NewUploader(s), files, nil
}
