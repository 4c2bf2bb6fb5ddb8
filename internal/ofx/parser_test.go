package ofx

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleBankOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-25.50
<FITID>2024011501
<NAME>STARBUCKS STORE #1234
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>1500.00
<FITID>2024012001
<NAME>PAYROLL ACME CORP
<MEMO>JANUARY SALARY
</STMTTRN>
<STMTTRN>
<TRNTYPE>CHECK
<DTPOSTED>20240125120000[0:GMT]
<TRNAMT>-500.00
<FITID>2024012501
<CHECKNUM>1234
<NAME>CHECK #1234
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

const sampleCreditCardOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>USD
<CCACCTFROM>
<ACCTID>4111111111111111
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240110120000[0:GMT]
<TRNAMT>-45.99
<FITID>CC2024011001
<NAME>AMAZON.COM*RT4Y7HG2
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240115120000[0:GMT]
<TRNAMT>-15.00
<FITID>CC2024011501
<NAME>NETFLIX.COM
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-500.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func TestParseBankStatement(t *testing.T) {
	txns, err := Parse(strings.NewReader(sampleBankOFX), "bank-chase-karti")
	require.NoError(t, err)
	require.Len(t, txns, 3)

	assert.Equal(t, time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC), txns[0].Date)
	assert.Equal(t, "STARBUCKS STORE #1234", txns[0].Description)
	assert.Equal(t, "25.5", txns[0].Debit.String(), "negative OFX amount is a debit")
	assert.True(t, txns[0].Credit.IsZero())
	assert.Equal(t, "bank-chase-karti", txns[0].Account)
	assert.NotEmpty(t, txns[0].Fingerprint)

	assert.Equal(t, "PAYROLL ACME CORP", txns[1].Description)
	assert.Equal(t, "1500", txns[1].Credit.String(), "positive OFX amount is a credit")
	assert.Equal(t, "JANUARY SALARY", txns[1].Remarks, "memo lands in remarks")

	assert.Equal(t, "500", txns[2].Debit.String())
	assert.Equal(t, "check 1234", txns[2].Remarks)
}

func TestParseCreditCardStatement(t *testing.T) {
	txns, err := Parse(strings.NewReader(sampleCreditCardOFX), "cc-amex-og")
	require.NoError(t, err)
	require.Len(t, txns, 2)

	assert.Equal(t, "AMAZON.COM*RT4Y7HG2", txns[0].Description)
	assert.Equal(t, "45.99", txns[0].Debit.String())
	assert.Equal(t, "cc-amex-og", txns[0].Account)
	assert.Equal(t, "NETFLIX.COM", txns[1].Description)
	assert.Equal(t, "15", txns[1].Debit.String())
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse(strings.NewReader("not an OFX document"), "bank-chase-karti")
	assert.Error(t, err)

	_, err = Parse(strings.NewReader(""), "bank-chase-karti")
	assert.Error(t, err)
}

func TestParseToleratesMessyDownloads(t *testing.T) {
	// Leading blank lines and lowercase severity values both appear in real
	// downloads and both break strict OFX parsers.
	messy := "\n\n  " + strings.ReplaceAll(sampleBankOFX, "<SEVERITY>INFO", "<SEVERITY>Info</SEVERITY>")

	txns, err := Parse(strings.NewReader(messy), "bank-chase-karti")
	require.NoError(t, err)
	assert.Len(t, txns, 3)
}

func TestParseFingerprintsAreStable(t *testing.T) {
	first, err := Parse(strings.NewReader(sampleBankOFX), "bank-chase-karti")
	require.NoError(t, err)
	second, err := Parse(strings.NewReader(sampleBankOFX), "bank-chase-karti")
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Fingerprint, second[i].Fingerprint)
	}
}

func TestDescriptionFallsBackToMemo(t *testing.T) {
	doc := strings.Replace(sampleBankOFX,
		"<NAME>PAYROLL ACME CORP\n<MEMO>JANUARY SALARY",
		"<NAME>DEBIT\n<MEMO>ACH TRANSFER RENT", 1)

	txns, err := Parse(strings.NewReader(doc), "bank-chase-karti")
	require.NoError(t, err)
	require.Len(t, txns, 3)
	assert.Equal(t, "ACH TRANSFER RENT", txns[1].Description, "generic NAME defers to MEMO")
	assert.Empty(t, txns[1].Remarks)
}
