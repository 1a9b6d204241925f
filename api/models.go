package api

import "github.com/MrEthical07/goGate/session"

// LoginResult is the body of a successful login or registration.
type LoginResult struct {
	Token string           `json:"token"`
	User  session.Identity `json:"user"`
}

// RegisterRequest accepts an invitation by creating the invited account.
type RegisterRequest struct {
	InvitationToken string `json:"token"`
	Name            string `json:"name"`
	Password        string `json:"password"`
}

// Invitation describes a pending invitation.
type Invitation struct {
	Email   string       `json:"email"`
	BarID   string       `json:"barId"`
	BarName string       `json:"barName"`
	Role    session.Role `json:"role"`
}

// InviteResult is returned when an invitation is created.
type InviteResult struct {
	InvitationLink string `json:"invitationLink"`
}

// Bar is a bar visible to the current user.
type Bar struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	City          string       `json:"city"`
	Address       string       `json:"address"`
	Role          session.Role `json:"role,omitempty"`
	PendingOrders int          `json:"pendingOrders"`
	PendingPhotos int          `json:"pendingPhotos"`
	Active        bool         `json:"active"`
}

// CreateBarRequest is the body for creating a bar.
type CreateBarRequest struct {
	Name    string `json:"name"`
	City    string `json:"city"`
	Address string `json:"address"`
}

// DrinkCount is one entry of a bar's top drinks.
type DrinkCount struct {
	DrinkID string `json:"drinkId"`
	Name    string `json:"name"`
	Count   int    `json:"count"`
}

// BarStats summarises a bar's activity.
type BarStats struct {
	TotalOrders   int          `json:"totalOrders"`
	TotalRevenue  float64      `json:"totalRevenue"`
	PendingOrders int          `json:"pendingOrders"`
	PendingPhotos int          `json:"pendingPhotos"`
	TopDrinks     []DrinkCount `json:"topDrinks"`
}
