package game

import "math/rand"

// NextReader picks the player who reads the next black card. The
// players slice is scanned in order for the current reader; the next
// reader is the following entry, wrapping to the first. On the first
// turn (no current reader) the reader is picked at random. If the
// current reader has since left the room, the cycle restarts from the
// first player.
func NextReader(players []Player, currentReaderID string) (string, error) {
	if len(players) == 0 {
		return "", ErrNoPlayers
	}

	if currentReaderID == "" {
		return players[rand.Intn(len(players))].ID, nil
	}

	for i, p := range players {
		if p.ID == currentReaderID {
			return players[(i+1)%len(players)].ID, nil
		}
	}

	return players[0].ID, nil
}
