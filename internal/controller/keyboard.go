package controller

import (
	"github.com/eiannone/keyboard"
)

// keyBuffer is the number of keypresses buffered while a key is handled.
const keyBuffer = 10

// Keyboard reads single keypresses from the controlling terminal.
type Keyboard struct{}

// Keys puts the terminal into raw mode and returns the event channel.
func (Keyboard) Keys() (<-chan keyboard.KeyEvent, error) {
	return keyboard.GetKeys(keyBuffer)
}

// Close restores the terminal.
func (Keyboard) Close() error {
	return keyboard.Close()
}
