package orders

// SKUMap resolves marketplace SKUs through a static configuration map.
type SKUMap map[string]int64

func (m SKUMap) ElementID(shopSKU string) int64 {
	return m[shopSKU]
}
