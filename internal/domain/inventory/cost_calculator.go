package inventory

import "github.com/shopspring/decimal"

// CostCalculator implementa la lógica de costo promedio ponderado (servicio de dominio).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
// Con stock actual negativo o nulo el costo de la entrada reemplaza al promedio.
func CostCalculator(stockActual int64, costoActual decimal.Decimal, cantEntrada int64, costoEntrada decimal.Decimal) decimal.Decimal {
	if cantEntrada <= 0 {
		return costoActual
	}
	if stockActual <= 0 {
		return costoEntrada
	}
	stock := decimal.NewFromInt(stockActual)
	entrada := decimal.NewFromInt(cantEntrada)
	num := stock.Mul(costoActual).Add(entrada.Mul(costoEntrada))
	return num.Div(stock.Add(entrada)).Round(4)
}
