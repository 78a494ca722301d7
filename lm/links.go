package lm

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/eipi10/broom/pkg/errors"
)

// Link relates a generalized linear model's linear predictor to the expected
// response. Back-transformation applies Inverse; the delta-method rescaling of
// standard errors uses MuEta, the derivative of Inverse with respect to the
// linear predictor.
type Link struct {
	Name    string
	Inverse func(eta float64) float64
	MuEta   func(eta float64) float64
}

// IsIdentity reports whether back-transformation through this link is a no-op.
func (l Link) IsIdentity() bool {
	return l.Name == "identity"
}

var stdNormal = distuv.Normal{Mu: 0, Sigma: 1}

// IdentityLink returns the identity link.
func IdentityLink() Link {
	return Link{
		Name:    "identity",
		Inverse: func(eta float64) float64 { return eta },
		MuEta:   func(eta float64) float64 { return 1 },
	}
}

// LogLink returns the log link.
func LogLink() Link {
	return Link{
		Name:    "log",
		Inverse: math.Exp,
		MuEta:   math.Exp,
	}
}

// LogitLink returns the logit link.
func LogitLink() Link {
	return Link{
		Name: "logit",
		Inverse: func(eta float64) float64 {
			return 1 / (1 + math.Exp(-eta))
		},
		MuEta: func(eta float64) float64 {
			mu := 1 / (1 + math.Exp(-eta))
			return mu * (1 - mu)
		},
	}
}

// ProbitLink returns the probit link.
func ProbitLink() Link {
	return Link{
		Name:    "probit",
		Inverse: stdNormal.CDF,
		MuEta:   stdNormal.Prob,
	}
}

// InverseLink returns the reciprocal link.
func InverseLink() Link {
	return Link{
		Name:    "inverse",
		Inverse: func(eta float64) float64 { return 1 / eta },
		MuEta:   func(eta float64) float64 { return -1 / (eta * eta) },
	}
}

// SqrtLink returns the square-root link.
func SqrtLink() Link {
	return Link{
		Name:    "sqrt",
		Inverse: func(eta float64) float64 { return eta * eta },
		MuEta:   func(eta float64) float64 { return 2 * eta },
	}
}

// CloglogLink returns the complementary log-log link.
func CloglogLink() Link {
	return Link{
		Name: "cloglog",
		Inverse: func(eta float64) float64 {
			return 1 - math.Exp(-math.Exp(eta))
		},
		MuEta: func(eta float64) float64 {
			return math.Exp(eta - math.Exp(eta))
		},
	}
}

// LinkByName returns the link with the given name.
func LinkByName(name string) (Link, error) {
	switch name {
	case "identity":
		return IdentityLink(), nil
	case "log":
		return LogLink(), nil
	case "logit":
		return LogitLink(), nil
	case "probit":
		return ProbitLink(), nil
	case "inverse":
		return InverseLink(), nil
	case "sqrt":
		return SqrtLink(), nil
	case "cloglog":
		return CloglogLink(), nil
	default:
		return Link{}, errors.NewInvalidArgumentError("lm.LinkByName", "link", name,
			"expected one of identity, log, logit, probit, inverse, sqrt, cloglog")
	}
}
