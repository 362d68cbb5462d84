package normalize

// Alias lists are ordered by priority: the first path present in a raw
// record wins. Dotted paths descend into nested relations.
var (
	IDAliases = []string{"id", "_id", "uuid", "id_servicio", "id_producto", "service_id", "product_id"}

	NameAliases = []string{"name", "nombre", "nombre_servicio", "nombre_producto", "title", "titulo"}

	DescriptionAliases = []string{"description", "descripcion", "desc", "details", "detalle"}

	CategoryAliases = []string{"category", "categoria", "category_name", "categoria_nombre", "category_slug", "tipo"}

	PriceAliases = []string{"price", "precio", "precio_base", "base_price", "sale_price", "precio_venta"}

	OriginalPriceAliases = []string{"originalPrice", "original_price", "precio_original", "compare_price", "regular_price", "precio_anterior"}

	ImageAliases = []string{"image", "imagen", "image_url", "imagen_url", "imagen_principal", "main_image", "thumbnail", "foto"}

	GalleryAliases = []string{"gallery", "galeria", "images", "imagenes", "fotos"}

	StockAliases = []string{"stock", "quantity", "cantidad", "inventory", "existencias"}

	RatingAliases = []string{"rating", "calificacion", "average_rating", "avg_rating", "puntuacion"}

	ReviewsAliases = []string{"reviews", "reviews_count", "review_count", "num_reviews", "resenas"}

	CreatedAtAliases = []string{"created_at", "createdAt", "fecha_creacion", "created"}

	BrandAliases = []string{"brand", "marca"}

	AddressAliases = []string{"address", "direccion", "ubicacion", "location"}

	PhoneAliases = []string{"phone", "telefono", "contact_phone", "whatsapp", "celular"}

	KindAliases = []string{"kind"}

	// OwnerIDAliases: snake_case, then camelCase, then nested relations.
	OwnerIDAliases = []string{
		"entrepreneur_id",
		"emprendedor_id",
		"owner_id",
		"user_id",
		"usuario_id",
		"created_by_id",
		"creator_id",
		"author_id",
		"entrepreneurId",
		"emprendedorId",
		"ownerId",
		"userId",
		"usuarioId",
		"createdById",
		"creatorId",
		"authorId",
		"entrepreneur.id",
		"emprendedor.id",
		"owner.id",
		"user.id",
		"usuario.id",
		"created_by.id",
		"creator.id",
		"author.id",
	}

	// ActorIDAliases locate the current actor's id in a /me response.
	ActorIDAliases = []string{
		"id",
		"user_id",
		"data.id",
		"data.user_id",
		"user.id",
		"data.user.id",
		"usuario.id",
		"entrepreneur.id",
		"emprendedor.id",
		"data.entrepreneur.id",
		"data.emprendedor.id",
	}
)
