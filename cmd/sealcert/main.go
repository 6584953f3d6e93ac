// sealcert cifra un certificado .p12 con la clave simétrica de la bóveda,
// dejándolo listo para DGII_CERT_PATH. La clave llega por DGII_CERT_KEY o -key.
//
// Uso:
//
//	sealcert -in certificado.p12 -out certificado.p12.enc [-key <base64>]
package main

import (
	"flag"
	"fmt"
	"os"

	infradgii "github.com/jhoicas/ecf-api/internal/infrastructure/dgii"
)

func main() {
	in := flag.String("in", "", "ruta al .p12 en claro")
	out := flag.String("out", "", "ruta de salida del .p12 cifrado")
	key := flag.String("key", "", "clave simétrica en base64 (32 bytes); por defecto DGII_CERT_KEY")
	flag.Parse()

	if *in == "" || *out == "" {
		flag.Usage()
		os.Exit(2)
	}
	keyB64 := *key
	if keyB64 == "" {
		keyB64 = os.Getenv("DGII_CERT_KEY")
	}
	if keyB64 == "" {
		fmt.Fprintln(os.Stderr, "sealcert: falta la clave simétrica (-key o DGII_CERT_KEY)")
		os.Exit(2)
	}

	plain, err := os.ReadFile(*in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sealcert: leer %s: %v\n", *in, err)
		os.Exit(1)
	}

	sealed, err := infradgii.EncryptSecretbox(plain, keyB64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sealcert: cifrar: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*out, sealed, 0o600); err != nil {
		fmt.Fprintf(os.Stderr, "sealcert: escribir %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("certificado cifrado escrito en %s (%d bytes)\n", *out, len(sealed))
}
