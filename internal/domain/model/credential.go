package model

import "time"

// VPNAccount is the provisioned credential set returned to the customer
// on screen and by email after an approved purchase.
type VPNAccount struct {
	ID        string    `json:"id"`
	Username  string    `json:"usuario"`
	Password  string    `json:"contrasena"`
	Server    string    `json:"servidor"`
	Port      int       `json:"puerto"`
	Protocol  string    `json:"protocolo"`
	ExpiresAt time.Time `json:"expira"`
}
