package dto

// LoginRequest authenticates the operator.
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// SetCategoryPointsRequest sets a category weight.
type SetCategoryPointsRequest struct {
	Category string `json:"category"`
	Points   int    `json:"points"`
}

// SetCategoryChannelRequest routes a category's tickets.
type SetCategoryChannelRequest struct {
	Category  string `json:"category"`
	ChannelID string `json:"channel_id"`
}

// SetLogsChannelRequest sets the audit channel.
type SetLogsChannelRequest struct {
	ChannelID string `json:"channel_id"`
}

// AddRoleRequest appends a role to an allow-list.
type AddRoleRequest struct {
	RoleID string `json:"role_id"`
}

// LeaderboardEntry is one row of the leaderboard response.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	HelperID string `json:"helper_id"`
	Points   int    `json:"points"`
	Display  string `json:"display"`
}
