package seeds

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"gorm.io/gorm"

	"github.com/khankhulgun/maplayers/models"
)

// RouteID is the id of the demo route overlay.
const RouteID = "routeLayer"

var routeCoordinates = orb.LineString{
	{-122.48369693756104, 37.83381888486939},
	{-122.48348236083984, 37.83317489144141},
	{-122.48339653015138, 37.83270036637107},
	{-122.48356819152832, 37.832056363179625},
	{-122.48404026031496, 37.83114119107971},
	{-122.48404026031496, 37.83049717427869},
	{-122.48348236083984, 37.829920943955045},
	{-122.48356819152832, 37.82954808664175},
	{-122.48507022857666, 37.82944639795659},
	{-122.48610019683838, 37.82880236636284},
	{-122.48695850372314, 37.82931081282506},
	{-122.48700141906738, 37.83080223556934},
	{-122.48751640319824, 37.83168351665737},
	{-122.48803138732912, 37.832158048267786},
	{-122.48888969421387, 37.83297152392784},
	{-122.48987674713133, 37.83263257682617},
	{-122.49043464660643, 37.832937629287755},
	{-122.49125003814696, 37.832429207817725},
	{-122.49163627624512, 37.832564787218985},
	{-122.49223709106445, 37.83337825839438},
	{-122.49378204345702, 37.83368330777276},
}

// Route builds the demo route overlay.
func Route() (models.OverlayLayer, error) {
	feature := geojson.NewFeature(routeCoordinates)
	data, err := feature.MarshalJSON()
	if err != nil {
		return models.OverlayLayer{}, fmt.Errorf("encode route: %w", err)
	}

	return models.OverlayLayer{
		ID:     RouteID,
		Title:  "Trees",
		Source: data,
		Style: models.OverlayStyle{
			Type: "line",
			Layout: map[string]any{
				"line-join": "round",
				"line-cap":  "round",
			},
			Paint: map[string]any{
				"line-color": "#33bb6a",
				"line-width": 8,
			},
		},
		Visible:  true,
		IsActive: true,
	}, nil
}

// Seed inserts the demo overlays that are missing. Existing rows are left alone.
func Seed(db *gorm.DB) error {
	route, err := Route()
	if err != nil {
		return err
	}

	for _, o := range []models.OverlayLayer{route} {
		if err := db.Where("id = ?", o.ID).FirstOrCreate(&o).Error; err != nil {
			return fmt.Errorf("seed overlay %s: %w", o.ID, err)
		}
	}
	return nil
}
