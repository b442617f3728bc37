package annotation

// Zone is a rectangular overlay in normalized pitch coordinates.
type Zone struct {
	Name   string
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

var (
	thirdBounds = []float64{0, 100.0 / 3, 200.0 / 3, 100}
	thirdNames  = []string{"Attacking third", "Middle third", "Defensive third"}

	laneBounds = []float64{0, 20, 37, 63, 80, 100}
	laneNames  = []string{"Left wing", "Left half-space", "Centre", "Right half-space", "Right wing"}
)

// HorizontalZones splits the pitch into thirds, top to bottom. The team
// attacks toward the top.
func HorizontalZones() []Zone {
	zones := make([]Zone, 0, len(thirdNames))
	for i, name := range thirdNames {
		zones = append(zones, Zone{
			Name:   name,
			Left:   0,
			Top:    thirdBounds[i],
			Width:  100,
			Height: thirdBounds[i+1] - thirdBounds[i],
		})
	}
	return zones
}

// VerticalZones splits the pitch into wings, half-spaces and centre, left to right.
func VerticalZones() []Zone {
	zones := make([]Zone, 0, len(laneNames))
	for i, name := range laneNames {
		zones = append(zones, Zone{
			Name:   name,
			Left:   laneBounds[i],
			Top:    0,
			Width:  laneBounds[i+1] - laneBounds[i],
			Height: 100,
		})
	}
	return zones
}
