package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"battle-arena/internal/clients"
	"battle-arena/internal/config"
	"battle-arena/internal/logging"
	"battle-arena/internal/models"
	"battle-arena/internal/services"
)

func main() {
	configPath := flag.String("config", "./configs", "directory holding config.yaml")
	image1Path := flag.String("image1", "", "first combatant image")
	image2Path := flag.String("image2", "", "second combatant image")
	outPath := flag.String("out", "", "write the raw battle result JSON to this file")
	flag.Parse()

	if *image1Path == "" || *image2Path == "" {
		fmt.Fprintln(os.Stderr, "usage: analyze -image1 a.jpg -image2 b.png [-config ./configs] [-out result.json]")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath, "config")
	if err != nil {
		log.Fatal().Err(err).Msg("[Analyze] cannot load config")
	}
	logging.Setup(cfg.Log)

	if err := run(cfg, *image1Path, *image2Path, *outPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, image1Path, image2Path, outPath string) error {
	image1, err := loadImage(image1Path)
	if err != nil {
		return err
	}
	image2, err := loadImage(image2Path)
	if err != nil {
		return err
	}

	ctx := context.Background()
	generator, closeGenerator, err := clients.NewGenerator(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeGenerator()

	svc, err := services.NewBattleService(cfg, generator)
	if err != nil {
		return err
	}
	result, err := svc.Analyze(ctx, image1, image2)
	if err != nil {
		return err
	}

	if outPath != "" {
		b, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		if err := os.WriteFile(outPath, b, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", outPath, err)
		}
		log.Info().Str("path", outPath).Msg("[Analyze] result written")
	}

	fmt.Println(services.ShareText(result))
	return nil
}

func loadImage(path string) (models.Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Image{}, fmt.Errorf("read image: %w", err)
	}
	if len(data) == 0 {
		return models.Image{}, fmt.Errorf("image %s is empty", path)
	}
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = http.DetectContentType(data)
	}
	return models.Image{FileName: filepath.Base(path), MIMEType: mimeType, Data: data}, nil
}
