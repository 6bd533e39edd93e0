package entity

import "time"

// Stock fila materializada por producto: total corrido del kardex y reservas abiertas.
// Es la frontera de serialización por producto (SELECT FOR UPDATE); nunca es la fuente de verdad,
// siempre se puede reconstruir desde los movimientos y las órdenes abiertas.
type Stock struct {
	ProductID string
	Available int64
	Reserved  int64
	UpdatedAt time.Time
}

// Free cantidad que aún se puede reservar.
func (s *Stock) Free() int64 {
	return s.Available - s.Reserved
}
