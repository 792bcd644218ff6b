package cart

type operation string

const (
	opAdd      operation = "add"
	opUpdate   operation = "update"
	opRemove   operation = "remove"
	opDiscount operation = "discount"
	opRefresh  operation = "refresh"
)

var messages = map[string]map[operation]string{
	"es": {
		opAdd:      "No se pudo agregar al carrito",
		opUpdate:   "No se pudo actualizar el carrito",
		opRemove:   "No se pudo eliminar el producto",
		opDiscount: "No se pudo aplicar el código de descuento",
		opRefresh:  "No se pudo cargar el carrito",
	},
	"en": {
		opAdd:      "Could not add to cart",
		opUpdate:   "Could not update the cart",
		opRemove:   "Could not remove the item",
		opDiscount: "Could not apply the discount code",
		opRefresh:  "Could not load the cart",
	},
}

func (s *Service) message(op operation) string {
	base, _ := s.locale.Base()
	if m, ok := messages[base.String()]; ok {
		return m[op]
	}
	return messages["es"][op]
}
