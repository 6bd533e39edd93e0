package entity

// Balance vista derivada del saldo de un producto.
// Available proviene del plegado del kardex; Reserved de la fila de stock; OnOrder de las órdenes
// abiertas en estado stock_reserved. Para productos con stock virtual Unbounded es true y
// Available/Free no tienen significado.
type Balance struct {
	ProductID string
	Available int64
	Reserved  int64
	OnOrder   int64
	Free      int64
	Unbounded bool
}
