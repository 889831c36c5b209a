package models

// Button is a single interactive button on a sent message.
type Button struct {
	Text      string
	IsChecked bool
}

// ButtonsInfo is the ephemeral UI state attached to a message that carries
// a button grid: the grid itself, an opaque correlation key identifying
// which registered button handler owns it, and the most recent press.
// PendingEventID is the platform interaction waiting to be acknowledged,
// cleared once the adapter accepts it.
type ButtonsInfo struct {
	PressedText    string
	PresserUser    *User
	Buttons        [][]*Button
	Key            string
	PendingEventID string
}

// FindButton returns the button whose text equals text, or nil.
func (b *ButtonsInfo) FindButton(text string) *Button {
	if b == nil || text == "" {
		return nil
	}
	for _, row := range b.Buttons {
		for _, button := range row {
			if button.Text == text {
				return button
			}
		}
	}
	return nil
}

// PressedButton returns the button matching the last press, or nil.
func (b *ButtonsInfo) PressedButton() *Button {
	if b == nil {
		return nil
	}
	return b.FindButton(b.PressedText)
}

// CheckedButtons returns every checked button in grid order.
func (b *ButtonsInfo) CheckedButtons() []*Button {
	if b == nil {
		return nil
	}
	var checked []*Button
	for _, row := range b.Buttons {
		for _, button := range row {
			if button.IsChecked {
				checked = append(checked, button)
			}
		}
	}
	return checked
}
