package main

import (
	"os"

	"github.com/rs/zerolog/log"

	"github.com/campuslostfound/lostfound/lostfoundservice"
)

func main() {
	if err := lostfoundservice.Run(); err != nil {
		log.Error().Err(err).Msg("lostfound-service exited with error")
		os.Exit(1)
	}
}
