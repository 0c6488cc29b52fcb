// seed_catalog genera el script SQL que puebla el catálogo (puntos de venta, tipos de comprobante,
// tributos, clientes y artículos) a partir de un export XML del sistema de gestión.
//
// Uso: go run ./cmd/seed_catalog [ruta/catalogo.xml]
// Por defecto lee docs/catalog.example.xml.
// Escribe: internal/infrastructure/postgres/seed_catalog.sql
package main

import (
	"fmt"
	"os"
	"path/filepath"
)

func main() {
	moduleRoot := findModuleRoot()
	xmlPath := filepath.Join(moduleRoot, "docs", "catalog.example.xml")
	if len(os.Args) > 1 {
		xmlPath = os.Args[1]
	}
	f, err := os.Open(xmlPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir XML: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	cat, err := decodeCatalog(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Decodificar XML: %v\n", err)
		os.Exit(1)
	}

	outPath := filepath.Join(moduleRoot, "internal", "infrastructure", "postgres", "seed_catalog.sql")
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := writeSQL(out, cat); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d puntos de venta, %d tipos, %d tributos, %d clientes, %d artículos\n",
		outPath, len(cat.SalesPoints), len(cat.VoucherTypes), len(cat.Tributes), len(cat.Customers), len(cat.Articles))
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
