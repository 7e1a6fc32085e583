package led

import "math"

// Post is the output stage applied to every frame just before it reaches the
// driver. Zero values disable each step.
//
//   - Brightness scales every channel (0..1).
//   - WhiteCap scales a pixel so R+G+B <= WhiteCap*3*255.
//   - BudgetMA scales the whole frame so the estimated draw stays under
//     the supply budget, starting softly at Knee*BudgetMA.
type Post struct {
	Brightness float64
	WhiteCap   float64
	BudgetMA   float64
	ChanMA     float64 // mA per channel at full scale, WS2812 is about 20
	Knee       float64
}

// Apply processes a packed RGB frame in place.
func (p Post) Apply(rgb []byte) {
	if p.Brightness > 0 && p.Brightness < 1 {
		for i := range rgb {
			rgb[i] = byte(math.Round(float64(rgb[i]) * p.Brightness))
		}
	}

	if p.WhiteCap > 0 && p.WhiteCap < 1 {
		limit := p.WhiteCap * 3 * 255
		for i := 0; i+2 < len(rgb); i += 3 {
			s := float64(rgb[i]) + float64(rgb[i+1]) + float64(rgb[i+2])
			if s > limit {
				scalePixel(rgb[i:i+3], limit/s)
			}
		}
	}

	if p.BudgetMA <= 0 {
		return
	}
	chanMA := p.ChanMA
	if chanMA <= 0 {
		chanMA = 20
	}
	knee := p.Knee
	if knee <= 0 || knee >= 1 {
		knee = 0.9
	}
	total := EstimateCurrent(rgb, chanMA)
	if total <= 0 {
		return
	}
	ratio := total / p.BudgetMA
	if ratio <= knee {
		return
	}
	minS := p.BudgetMA / total
	s := minS
	if ratio <= 1 {
		t := (ratio - knee) / (1 - knee)
		s = 1 - t*(1-minS)
	}
	if s >= 1 {
		return
	}
	for i := 0; i+2 < len(rgb); i += 3 {
		scalePixel(rgb[i:i+3], s)
	}
}

// EstimateCurrent returns the estimated draw in mA for a packed RGB frame.
func EstimateCurrent(rgb []byte, chanMA float64) float64 {
	var sum float64
	for _, v := range rgb {
		sum += float64(v)
	}
	return sum / 255 * chanMA
}

func scalePixel(px []byte, s float64) {
	for i := range px {
		px[i] = byte(math.Floor(float64(px[i]) * s))
	}
}
