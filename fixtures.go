package main

import (
	"context"
	"pongrank/internal/config"
)

func loadFixtures(conf *config.Config) error {
	b, err := openBack(conf)
	if err != nil {
		return err
	}
	defer b.Close()

	return b.LoadFixtures(context.Background())
}
