package service

import (
	"errors"
	"fmt"

	"github.com/ikkim/gadgetshop-backend/internal/app/model"
)

var ErrUnknownProductKind = errors.New("unknown product kind")

// SpecificationRow is one labelled attribute of a product.
type SpecificationRow struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// RenderSpecification lists the kind-specific attributes of product in a
// fixed order. The spec row for the product's kind must be loaded.
func RenderSpecification(product *model.Product) ([]SpecificationRow, error) {
	switch product.Kind {
	case model.ProductKindNotebook:
		if product.Notebook == nil {
			return nil, fmt.Errorf("notebook spec not loaded for product %d", product.ID)
		}
		nb := product.Notebook
		return []SpecificationRow{
			{Label: "Diagonal", Value: nb.Diagonal},
			{Label: "Display type", Value: nb.Display},
			{Label: "Processor frequency", Value: nb.Processor},
			{Label: "RAM", Value: nb.RAM},
			{Label: "Battery life", Value: nb.BatteryLife},
		}, nil

	case model.ProductKindSmartphone:
		if product.Smartphone == nil {
			return nil, fmt.Errorf("smartphone spec not loaded for product %d", product.ID)
		}
		sp := product.Smartphone
		rows := []SpecificationRow{
			{Label: "Diagonal", Value: sp.Diagonal},
			{Label: "Display type", Value: sp.Display},
			{Label: "Resolution", Value: sp.Resolution},
			{Label: "RAM", Value: sp.RAM},
		}
		if sp.SD {
			rows = append(rows,
				SpecificationRow{Label: "SD card", Value: "available"},
				SpecificationRow{Label: "Max SD capacity", Value: sp.SDMaxVolume + " GB"},
			)
		} else {
			rows = append(rows, SpecificationRow{Label: "SD card", Value: "not available"})
		}
		return append(rows,
			SpecificationRow{Label: "Main camera", Value: sp.MainCameraMP},
			SpecificationRow{Label: "Front camera", Value: sp.FrontalCameraMP},
		), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownProductKind, product.Kind)
}
