package contact

// Update carries optional new values for the seven mutable fields.
// A nil pointer leaves the field unchanged. firstName is the identity anchor
// and cannot be edited.
type Update struct {
	LastName *string
	Address  *string
	City     *string
	State    *string
	Zip      *string
	Phone    *string
	Email    *string
}

// IsEmpty reports whether the update changes nothing.
func (u Update) IsEmpty() bool {
	return u.LastName == nil && u.Address == nil && u.City == nil && u.State == nil &&
		u.Zip == nil && u.Phone == nil && u.Email == nil
}

// UpdateFromValues builds an Update from seven positional values in the order
// lastName, address, city, state, zip, phone, email. An empty string means
// "no change" for that position.
func UpdateFromValues(v [7]string) Update {
	opt := func(s string) *string {
		if s == "" {
			return nil
		}
		return &s
	}
	return Update{
		LastName: opt(v[0]),
		Address:  opt(v[1]),
		City:     opt(v[2]),
		State:    opt(v[3]),
		Zip:      opt(v[4]),
		Phone:    opt(v[5]),
		Email:    opt(v[6]),
	}
}

// Apply validates every supplied value and, only if all pass, writes them to
// the contact. On error the contact is unchanged.
func (c *Contact) Apply(u Update) error {
	next := c.fields
	edits := []struct {
		field string
		value *string
		dst   *string
	}{
		{FieldLastName, u.LastName, &next.LastName},
		{FieldAddress, u.Address, &next.Address},
		{FieldCity, u.City, &next.City},
		{FieldState, u.State, &next.State},
		{FieldZip, u.Zip, &next.Zip},
		{FieldPhone, u.Phone, &next.Phone},
		{FieldEmail, u.Email, &next.Email},
	}
	for _, e := range edits {
		if e.value == nil {
			continue
		}
		if err := Validate(e.field, *e.value); err != nil {
			return err
		}
		*e.dst = *e.value
	}
	c.fields = next
	return nil
}
