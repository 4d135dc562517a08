package main

import (
	"errors"
	"fmt"

	"github.com/ivlev/photoreel/internal/enhance"
	"github.com/spf13/cobra"
)

func newEnhanceCmd(a *app) *cobra.Command {
	e := &a.cfg.Enhance

	cmd := &cobra.Command{
		Use:   "enhance [папка-с-фото]",
		Short: "Масштабирование и автоулучшение фотографий",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				e.InputDir = args[0]
			}
			if e.InputDir == "" {
				return errors.New("укажите папку с фотографиями")
			}

			r, err := enhance.NewRunner(*e, a.logger)
			if err != nil {
				return err
			}
			sum, err := r.Run(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Println("[*] Итог:")
			fmt.Printf("    - Найдено изображений: %d\n", sum.Found)
			fmt.Printf("    - Обработано: %d\n", sum.Processed)
			fmt.Printf("    - Пропущено: %d\n", sum.Ignored())
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&e.OutputDir, "output-dir", "o", "", "Папка для результата (по умолчанию Output)")
	f.StringVar(&e.ScaleMode, "scale", "", "Масштаб: none, up, down")
	f.Float64Var(&e.Factor, "factor", 0, "Коэффициент (up: целая часть, down: 0..1)")
	f.BoolVar(&e.AutoEnhance, "auto", false, "Контраст, яркость, насыщенность и резкость")
	f.IntVar(&e.Workers, "workers", 0, "Потоки")
	return cmd
}
