package models

// Nutrients holds the seven tracked nutrition values. Foods store them per
// reference serving; recipes store them as totals across all ingredients.
type Nutrients struct {
	Calories      float64 `gorm:"not null;default:0" json:"calories"`
	Protein       float64 `gorm:"not null;default:0" json:"protein"`
	Carbohydrates float64 `gorm:"not null;default:0" json:"carbohydrates"`
	Fat           float64 `gorm:"not null;default:0" json:"fat"`
	Fiber         float64 `gorm:"not null;default:0" json:"fiber"`
	Sugar         float64 `gorm:"not null;default:0" json:"sugar"`
	Sodium        float64 `gorm:"not null;default:0" json:"sodium"`
}

// Map applies fn to every field and returns the result.
func (n Nutrients) Map(fn func(float64) float64) Nutrients {
	return Nutrients{
		Calories:      fn(n.Calories),
		Protein:       fn(n.Protein),
		Carbohydrates: fn(n.Carbohydrates),
		Fat:           fn(n.Fat),
		Fiber:         fn(n.Fiber),
		Sugar:         fn(n.Sugar),
		Sodium:        fn(n.Sodium),
	}
}

// Scale multiplies every field by factor.
func (n Nutrients) Scale(factor float64) Nutrients {
	return n.Map(func(v float64) float64 { return v * factor })
}

// Add returns the field-wise sum of n and other.
func (n Nutrients) Add(other Nutrients) Nutrients {
	return Nutrients{
		Calories:      n.Calories + other.Calories,
		Protein:       n.Protein + other.Protein,
		Carbohydrates: n.Carbohydrates + other.Carbohydrates,
		Fat:           n.Fat + other.Fat,
		Fiber:         n.Fiber + other.Fiber,
		Sugar:         n.Sugar + other.Sugar,
		Sodium:        n.Sodium + other.Sodium,
	}
}
