package main

import (
	"fmt"

	"github.com/ivlev/photoreel/internal/collage"
	"github.com/spf13/cobra"
)

func newCollageCmd(a *app) *cobra.Command {
	c := &a.cfg.Collage

	cmd := &cobra.Command{
		Use:   "collage",
		Short: "Коллажи «до/после» для каждого ученика из списка",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := collage.NewRunner(*c, a.logger)
			if err != nil {
				return err
			}
			sum, err := r.Run(cmd.Context())
			if err != nil {
				return err
			}

			a.logger.Info().
				Int("total", sum.Total).
				Int("processed", sum.Processed).
				Int("missing", sum.Missing).
				Int("failed", sum.Failed).
				Msg("[*] Итог")
			fmt.Printf("[+++] Готово! Журнал: %s\n", sum.LogPath)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&c.PhotosDir, "photos", "", "Папка с фотографиями {N}_bf / {N}_af (по умолчанию Fotos)")
	f.StringVarP(&c.OutputDir, "output-dir", "o", "", "Папка для результата (по умолчанию Output)")
	f.StringVar(&c.RosterPath, "roster", "", "Список учеников, CSV с разделителем ';'")
	f.StringVar(&c.FontPath, "font", "", "TTF/OTF шрифт подписи (по умолчанию Go Regular)")
	f.BoolVar(&c.QRCode, "qr", false, "Добавить QR-код с номером ученика")
	f.IntVar(&c.Workers, "workers", 0, "Потоки")
	return cmd
}
