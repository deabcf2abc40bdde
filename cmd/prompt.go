package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/example/resy-booker/internal/availability"
	"github.com/example/resy-booker/internal/booker"
	"github.com/example/resy-booker/internal/resy"
	"github.com/manifoldco/promptui"
)

func promptVenue() (string, error) {
	prompt := promptui.Prompt{
		Label: "Restaurant name or Resy URL",
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("venue is required")
			}
			return nil
		},
	}
	return prompt.Run()
}

func promptDate(loc *time.Location) (string, error) {
	prompt := promptui.Prompt{
		Label:   "Date (YYYY-MM-DD)",
		Default: time.Now().In(loc).Format(resy.DateLayout),
		Validate: func(input string) error {
			if _, err := time.ParseInLocation(resy.DateLayout, strings.TrimSpace(input), loc); err != nil {
				return errors.New("use YYYY-MM-DD")
			}
			return nil
		},
	}
	return prompt.Run()
}

func promptPartySize(def int) (int, error) {
	prompt := promptui.Prompt{
		Label:   "Party size",
		Default: strconv.Itoa(def),
		Validate: func(input string) error {
			if n, err := strconv.Atoi(strings.TrimSpace(input)); err != nil || n < 1 {
				return errors.New("enter a number >= 1")
			}
			return nil
		},
	}
	s, err := prompt.Run()
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(s))
}

// confirmEachSlot walks the slots in order and books the first one confirmed.
func confirmEachSlot() booker.Chooser {
	return booker.ChooserFunc(func(_ context.Context, v resy.Venue, slots []availability.TimeSlot) (availability.TimeSlot, bool, error) {
		for _, s := range slots {
			prompt := promptui.Prompt{
				Label:     fmt.Sprintf("Book %s at %s", v.Name, s.Label),
				IsConfirm: true,
			}
			if _, err := prompt.Run(); err != nil {
				if errors.Is(err, promptui.ErrInterrupt) {
					return availability.TimeSlot{}, false, err
				}
				continue
			}
			return s, true, nil
		}
		return availability.TimeSlot{}, false, nil
	})
}
