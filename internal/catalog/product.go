package catalog

// Product 是可选商品扩展的能力接口：有扩展的条目暴露下载引用与
// 展示名，没有扩展的条目由空对象兜底。
type Product interface {
	Downloads() []Download
	DisplayName() string
}

// ProductOf 根据条目是否携带下载引用返回对应的能力实现。
func ProductOf(item Item) Product {
	if item.DownloadURL != "" {
		return downloadableItem{item: item}
	}
	return plainItem{item: item}
}

// plainItem 是空对象兜底：返回条目的原始标题，没有任何下载。
type plainItem struct {
	item Item
}

func (p plainItem) Downloads() []Download { return nil }
func (p plainItem) DisplayName() string   { return p.item.Title }

type downloadableItem struct {
	item Item
}

func (p downloadableItem) Downloads() []Download {
	return []Download{{URL: p.item.DownloadURL}}
}

func (p downloadableItem) DisplayName() string { return p.item.Title }
