package blueprint

import (
	"slices"
	"strconv"
)

// Module type constants for the type discriminator field.
const (
	TypeExploit   = "exploit"
	TypeAuxiliary = "auxiliary"
	TypePost      = "post"
	TypePayload   = "payload"
	TypeEncoder   = "encoder"
	TypeNop       = "nop"
	TypeEvasion   = "evasion"
)

var validTypes = []string{
	TypeExploit,
	TypeAuxiliary,
	TypePost,
	TypePayload,
	TypeEncoder,
	TypeNop,
	TypeEvasion,
}

// ValidTypes returns all valid module types in the fixed order a
// type-agnostic registry tries them. The slice is a fresh copy.
func ValidTypes() []string {
	return slices.Clone(validTypes)
}

// typeDirs maps a module type to the directory holding it inside a source.
var typeDirs = map[string]string{
	TypeExploit:   "exploits",
	TypeAuxiliary: "auxiliary",
	TypePost:      "post",
	TypePayload:   "payloads",
	TypeEncoder:   "encoders",
	TypeNop:       "nops",
	TypeEvasion:   "evasion",
}

// IsValidType reports whether t is a known module type.
func IsValidType(t string) bool {
	_, ok := typeDirs[t]
	return ok
}

// TypeDir returns the source directory name for a module type.
// "exploit" -> "exploits", "auxiliary" -> "auxiliary".
func TypeDir(moduleType string) string {
	return typeDirs[moduleType]
}

// TypeFromDir is the inverse of TypeDir. It returns "" for unknown directories.
func TypeFromDir(dir string) string {
	for t, d := range typeDirs {
		if d == dir {
			return t
		}
	}
	return ""
}

// Ranks order enumeration; higher sorts first.
const (
	ManualRank    = -300
	LowRank       = -200
	AverageRank   = -100
	NormalRank    = 0
	GoodRank      = 100
	GreatRank     = 200
	ExcellentRank = 300
)

var rankNames = map[int]string{
	ManualRank:    "manual",
	LowRank:       "low",
	AverageRank:   "average",
	NormalRank:    "normal",
	GoodRank:      "good",
	GreatRank:     "great",
	ExcellentRank: "excellent",
}

// RankName returns the symbolic name of a well-known rank, or the number.
func RankName(rank int) string {
	if name, ok := rankNames[rank]; ok {
		return name
	}
	return strconv.Itoa(rank)
}

// ExplicitRank returns a pointer to rank, for building manifests in code.
func ExplicitRank(rank int) *int {
	return &rank
}
