package domain

// Normalize replaces nil collections with empty ones so the document always
// serializes with every field present.
func (d *Document) Normalize() {
	if d.ActiveMenu == nil {
		d.ActiveMenu = []ActiveMenuEntry{}
	}
	if d.AllDishes == nil {
		d.AllDishes = []Dish{}
	}
	if d.Orders == nil {
		d.Orders = []Order{}
	}
	if d.Feedbacks == nil {
		d.Feedbacks = []Feedback{}
	}
	if d.Tables == nil {
		d.Tables = []Table{}
	}
}

// Clone returns a deep copy so transforms never alias the caller's slices.
func (d Document) Clone() Document {
	out := d
	out.ActiveMenu = CloneMenu(d.ActiveMenu)
	out.AllDishes = append([]Dish{}, d.AllDishes...)
	out.Orders = make([]Order, len(d.Orders))
	for i, o := range d.Orders {
		o.Items = append([]OrderItem{}, o.Items...)
		out.Orders[i] = o
	}
	out.Feedbacks = append([]Feedback{}, d.Feedbacks...)
	out.Tables = append([]Table{}, d.Tables...)
	return out
}

// CloneMenu deep-copies the active menu, including the stock pointers.
func CloneMenu(menu []ActiveMenuEntry) []ActiveMenuEntry {
	out := make([]ActiveMenuEntry, len(menu))
	for i, e := range menu {
		if e.Quantity != nil {
			q := *e.Quantity
			e.Quantity = &q
		}
		out[i] = e
	}
	return out
}

func (d Document) FindOrder(id string) (int, bool) {
	for i, o := range d.Orders {
		if o.ID == id {
			return i, true
		}
	}
	return -1, false
}

// OrderByBadge returns the outstanding order for a badge number, if any.
func (d Document) OrderByBadge(matricola string) (Order, bool) {
	if matricola == "" {
		return Order{}, false
	}
	for _, o := range d.Orders {
		if o.Matricola == matricola {
			return o, true
		}
	}
	return Order{}, false
}

func (d Document) FindMenuEntry(id string) (int, bool) {
	for i, e := range d.ActiveMenu {
		if e.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (d Document) FindDish(id string) (int, bool) {
	for i, dish := range d.AllDishes {
		if dish.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (d Document) FindTable(id string) (int, bool) {
	for i, t := range d.Tables {
		if t.ID == id {
			return i, true
		}
	}
	return -1, false
}

// SeatsTaken counts the orders seated at a table.
func (d Document) SeatsTaken(tableID string) int {
	n := 0
	for _, o := range d.Orders {
		if o.Table == tableID {
			n++
		}
	}
	return n
}

// IntPtr is a small helper for building stock quantities.
func IntPtr(i int) *int {
	return &i
}
