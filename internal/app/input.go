package app

import (
	"context"
	"sync"

	"github.com/eiannone/keyboard"
)

// handleKey maps a command key onto the user command surface and reports
// whether it asked to quit.
func (a *App) handleKey(ch rune) bool {
	switch ch {
	case 'q', 'Q':
		return true
	case 'r', 'R':
		a.RestartAudio()
	case 'b', 'B':
		a.ToggleBackground()
	case 'c', 'C':
		a.centreClick()
	}
	return false
}

func (a *App) startInputListener(ctx context.Context) {
	if err := keyboard.Open(); err != nil {
		a.log.Printf("keyboard input disabled: %v", err)
		return
	}

	closeOnce := &sync.Once{}
	go func() {
		<-ctx.Done()
		closeOnce.Do(func() {
			_ = keyboard.Close()
		})
	}()

	go func() {
		defer closeOnce.Do(func() {
			_ = keyboard.Close()
		})
		for {
			char, key, err := keyboard.GetKey()
			if err != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			default:
			}
			if key == keyboard.KeyEsc || key == keyboard.KeyCtrlC || a.handleKey(char) {
				a.Quit()
				return
			}
		}
	}()
}
