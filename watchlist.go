package cryptofolio

import "time"

// WatchlistEntry is a coin a user follows without necessarily holding it.
// It carries no derived state.
type WatchlistEntry struct {
	ID         int64     `json:"id"`
	UserID     string    `json:"user_id"`
	CoinID     string    `json:"coin_id"`
	CoinSymbol string    `json:"coin_symbol"`
	CoinName   string    `json:"coin_name"`
	CreatedAt  time.Time `json:"created_at"`
}
