package models

import (
	"errors"
	"time"
)

// ErrInvalidConfiguration est renvoyée (enveloppée) dès qu'une valeur de config viole une contrainte.
var ErrInvalidConfiguration = errors.New("invalid configuration")

/*
DOMAINE → bras d'expérience et covariables (ensembles finis)
*/

// Variant est le bras d'expérience attribué à un utilisateur.
type Variant uint8

const (
	Control Variant = iota
	Treatment
)

// Country est le pays simulé d'un utilisateur.
type Country uint8

const (
	US Country = iota
	GB
	DE
	IN
	BR
)

// Device est le type d'appareil simulé d'un utilisateur.
type Device uint8

const (
	Desktop Device = iota
	Mobile
)

var (
	variantNames = [...]string{Control: "control", Treatment: "treatment"}
	countryNames = [...]string{US: "US", GB: "GB", DE: "DE", IN: "IN", BR: "BR"}
	deviceNames  = [...]string{Desktop: "desktop", Mobile: "mobile"}
)

// Variants, Countries, Devices listent les domaines dans leur ordre de tirage.
var (
	Variants  = [...]Variant{Control, Treatment}
	Countries = [...]Country{US, GB, DE, IN, BR}
	Devices   = [...]Device{Desktop, Mobile}
)

func (v Variant) String() string {
	if int(v) < len(variantNames) {
		return variantNames[v]
	}
	return "unknown"
}

func (c Country) String() string {
	if int(c) < len(countryNames) {
		return countryNames[c]
	}
	return "unknown"
}

func (d Device) String() string {
	if int(d) < len(deviceNames) {
		return deviceNames[d]
	}
	return "unknown"
}

/*
COMPUTE → une ligne par utilisateur simulé
*/

// Row représente un utilisateur simulé tel qu'il est écrit dans la sortie.
type Row struct {
	UserID    int       // 1..N, séquentiel
	Timestamp time.Time // dans [StartDate, StartDate + Days)
	Variant   Variant
	Country   Country
	Device    Device
	Converted bool
	Revenue   float64 // 0 si non converti, arrondi à 2 décimales
}

// ISOTimestamp formate en ISO-8601 sans offset pour une fenêtre "naïve" (time.UTC),
// avec offset (+00:00 compris) quand la date de début en portait un.
func (r Row) ISOTimestamp() string {
	if r.Timestamp.Location() == time.UTC {
		return r.Timestamp.Format("2006-01-02T15:04:05")
	}
	return r.Timestamp.Format("2006-01-02T15:04:05-07:00")
}

/*
CONFIG → paramètres de simulation
*/

// Config contient les paramètres résolus passés au moteur de simulation.
type Config struct {
	UserCount     int       `validate:"gt=0"`      // nombre de lignes
	BaselineRate  float64   `validate:"gt=0,lt=1"` // taux de conversion du bras control
	TreatmentLift float64   // lift relatif du bras treatment
	StartDate     time.Time `validate:"required"` // borne basse de la fenêtre
	Days          int       `validate:"gt=0"`     // largeur de la fenêtre en jours
	Seed          int64     // initialisation de la source aléatoire
	Workers       int       `validate:"gte=0"` // 0/1 = séquentiel, >1 = un flux par utilisateur
}

// TreatmentRate est le taux de base du bras treatment avant ajustements.
func (c Config) TreatmentRate() float64 {
	return c.BaselineRate * (1 + c.TreatmentLift)
}

// WindowEnd est la borne haute (exclue) de la fenêtre de timestamps.
func (c Config) WindowEnd() time.Time {
	return c.StartDate.AddDate(0, 0, c.Days)
}
