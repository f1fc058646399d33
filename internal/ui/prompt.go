package ui

import (
	"fmt"

	"github.com/charmbracelet/huh"
)

// PromptForStation asks the user to pick one of the known stations
func PromptForStation(stations []string) (string, error) {
	if len(stations) == 0 {
		return "", fmt.Errorf("no stations configured")
	}

	station := stations[0]
	options := make([]huh.Option[string], len(stations))
	for i, s := range stations {
		options[i] = huh.NewOption(s, s)
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select Station").
				Description("The newest NBM run in the archive will be located").
				Options(options...).
				Value(&station),
		),
	).WithTheme(NewAppTheme())

	if err := form.Run(); err != nil {
		return "", fmt.Errorf("prompt cancelled: %w", err)
	}

	return station, nil
}
