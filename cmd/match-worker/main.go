package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/campuslostfound/lostfound/matchworker"
)

func main() {
	if err := matchworker.Run(); err != nil {
		log.Error().Err(err).Msg("match-worker exited with error")
		os.Exit(1)
	}
}
